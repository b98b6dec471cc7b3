// Package task defines the command body contract: the Body signature, the
// parameter and access declarations a body is submitted with, and the Task
// value a body receives for one execution.
package task
