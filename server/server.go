/*
Package server exposes stored regression trees over HTTP: they can be
uploaded, downloaded, rendered and used to predict samples.
*/
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pbanos/regtree/feature"
	"github.com/pbanos/regtree/tree"
	tjson "github.com/pbanos/regtree/tree/json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ShutdownTimeout is the time Run waits for in-flight requests to finish.
const ShutdownTimeout = 5 * time.Second

// Server serves the trees of a tree.Store.
type Server struct {
	store   tree.Store
	router  *gin.Engine
	logger  *zap.Logger
	metrics *metrics
}

// PredictRequest is the body of a prediction request. Sample values can be
// numbers or strings, and null or absent for missing values.
type PredictRequest struct {
	Samples []map[string]any `json:"samples" binding:"required"`
}

// PredictResponse is the body of the response to a prediction request.
type PredictResponse struct {
	Predictions []float64 `json:"predictions"`
}

// FeatureImportance is the importance of a feature of a tree.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

type errorResponse struct {
	Error string `json:"error"`
}

/*
New takes a tree.Store and a logger and returns a Server for the trees in
the store. Metrics are registered on a registry of the server, so several
servers can live in the same process.
*/
func New(store tree.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	s := &Server{store: store, logger: logger, metrics: newMetrics(reg)}
	r := gin.New()
	r.Use(gin.Recovery(), s.instrument)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	trees := r.Group("/trees")
	trees.POST("", s.createTree)
	trees.GET("/:id", s.getTree)
	trees.POST("/:id/predict", s.predict)
	trees.GET("/:id/importance", s.importance)
	trees.GET("/:id/dot", s.dot)
	s.router = r
	return s
}

// Handler returns the http.Handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

/*
Run serves HTTP requests on the given address until the context is done,
and then shuts the server down gracefully.
*/
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("serving trees", zap.String("addr", addr))
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// lookup returns the tree with the ID in the request path, or writes an
// error response and returns nil.
func (s *Server) lookup(c *gin.Context) *tree.Tree {
	id := c.Param("id")
	t, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		s.logger.Error("retrieving tree", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{"retrieving tree"})
		return nil
	}
	if t == nil {
		c.JSON(http.StatusNotFound, errorResponse{fmt.Sprintf("tree %s not found", id)})
		return nil
	}
	return t
}

func (s *Server) createTree(c *gin.Context) {
	t, err := tjson.ReadJSONTree(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{err.Error()})
		return
	}
	id, err := s.store.Create(c.Request.Context(), t)
	if err != nil {
		s.logger.Error("storing tree", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{"storing tree"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) getTree(c *gin.Context) {
	t := s.lookup(c)
	if t == nil {
		return
	}
	buf := &bytes.Buffer{}
	if err := tjson.WriteJSONTree(t, buf); err != nil {
		s.logger.Error("encoding tree", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{"encoding tree"})
		return
	}
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

func (s *Server) predict(c *gin.Context) {
	t := s.lookup(c)
	if t == nil {
		return
	}
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{err.Error()})
		return
	}
	resp := PredictResponse{Predictions: make([]float64, len(req.Samples))}
	for i, sample := range req.Samples {
		record, err := textRecord(sample)
		if err == nil {
			resp.Predictions[i], err = t.PredictRecord(record)
		}
		if err != nil {
			var sme *feature.SchemaMismatchError
			if errors.As(err, &sme) {
				s.logger.Debug("schema mismatch", zap.Int("sample", i), zap.Error(err))
			}
			c.JSON(http.StatusUnprocessableEntity, errorResponse{fmt.Sprintf("sample #%d: %v", i, err)})
			return
		}
	}
	s.metrics.predictions.Add(float64(len(req.Samples)))
	c.JSON(http.StatusOK, resp)
}

// textRecord turns the values of a JSON sample into their textual form.
func textRecord(sample map[string]any) (map[string]string, error) {
	record := make(map[string]string, len(sample))
	for name, v := range sample {
		switch v := v.(type) {
		case nil:
			record[name] = feature.Missing
		case string:
			record[name] = v
		case float64:
			record[name] = strconv.FormatFloat(v, 'g', -1, 64)
		default:
			return nil, fmt.Errorf("invalid value %v for feature %s", v, name)
		}
	}
	return record, nil
}

func (s *Server) importance(c *gin.Context) {
	t := s.lookup(c)
	if t == nil {
		return
	}
	features := t.Schema().Features()
	result := make([]FeatureImportance, len(features))
	for i, v := range t.Importance() {
		result[i] = FeatureImportance{features[i].Name(), v}
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) dot(c *gin.Context) {
	t := s.lookup(c)
	if t == nil {
		return
	}
	d, err := t.Dot()
	if err != nil {
		s.logger.Error("rendering tree", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{"rendering tree"})
		return
	}
	c.Data(http.StatusOK, "text/vnd.graphviz; charset=utf-8", []byte(d))
}
