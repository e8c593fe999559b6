// Package history keeps bounded time series of overdraw ratios.
//
// A Series holds at most Limit most recent samples; appending past the
// limit evicts the oldest sample first. A Cache maps series names (surface
// names plus the synthetic [Total] series) to series sharing one limit.
//
// The limit is presentation policy: a chart that draws one column per
// sample typically sets it from its plot width (see report.LimitForWidth).
// A limit of zero keeps every sample.
package history
