// Package profile holds the result of evaluating a jitter script: the
// sketch, the names the script gave its curves and a record of every
// jitter run applied to them.
package profile
