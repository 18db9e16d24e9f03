// Package bnmetrics exposes Prometheus metrics for build metadata resolution.
package bnmetrics
