// Package metrics defines the Prometheus collectors shared by notifykit
// components and small Record helpers around them. Collectors register with
// the default registry on package init; expose them with promhttp.Handler.
package metrics
