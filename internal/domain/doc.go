// Package domain contains the core business concepts of the engagement
// service: the membership submission and the error kinds a request can
// end with. Keep this package free of transport (HTTP) and infrastructure
// (SMTP, Redis, Postgres) concerns.
package domain
