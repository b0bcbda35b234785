// Package config loads the hierarchical pipeline configuration.
//
// A configuration is a YAML document whose top level is a mapping. It is read once, command-line
// overrides are applied on top of it, interpolations are resolved and missing values are rejected.
// Once Load returns, the configuration is read-only.
//
// Overrides follow the usual key=value convention:
//
//	main.execute_steps=download,preprocess   override an existing key
//	+data.extra=1                             add a key that must not exist yet
//	++data.extra=1                            add or override a key
//	~data.extra                               delete a key
//
// The value on the right-hand side is parsed as YAML, so main.execute_steps=[download,preprocess]
// yields a sequence while main.execute_steps=download,preprocess yields a string.
//
// Scalars may reference other keys with ${path.to.key}, or environment variables with
// ${oc.env:NAME} and ${oc.env:NAME,default}. A scalar whose value is ??? is mandatory and must be
// set by an override.
package config
