/*
Package observability exposes generator activity as Prometheus metrics.

Metrics plugs into an Instance through domain.LifecycleHooks (see
Metrics.Hooks) and reads embedding cache counters at scrape time. Nothing
here serves HTTP; hosts gather the registry themselves or print it with
WriteText.
*/
package observability
