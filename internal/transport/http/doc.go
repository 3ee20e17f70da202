// Package http contains the HTTP handlers of the read surface: latest leads,
// per-company score history, a run summary and the health and metrics
// endpoints. Handlers stay thin; the leads service owns the business view.
package http
