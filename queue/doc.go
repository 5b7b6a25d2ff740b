/*
Package queue defines tasks to be performed to grow a tree
as well as a Queue to manage them.

Tasks are pulled best first: the pending split with the highest reduction
of the sum of squared deviations is pulled before the others, and ties are
broken by the lowest node ID.
*/
package queue
