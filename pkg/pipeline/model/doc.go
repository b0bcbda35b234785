// Package model provides the data structures shared by the pipeline package and its options.
// It defines the stage descriptors handed to options, the run handed to an invoker,
// and the hook interface every pipeline option implements.
package model
