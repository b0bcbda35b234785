// Package pipeline drives a fixed sequence of machine-learning stages.
//
// The stages are download, preprocess, check_data, segregate, random_forest and evaluate. They
// always run in that order; the configuration only decides which of them run, through the
// main.execute_steps key. Each stage is an external project started through an invoker with a
// parameter mapping built from the configuration and from artifact naming conventions: the
// artifact a stage produces is passed to the next stage as the literal "<name>:latest".
//
// The pipeline stops on the first error. Options implementing model.PipelineOption observe the
// run: they are prepared for every selected stage before anything is invoked, notified after each
// stage and finished once the last stage succeeded.
package pipeline
