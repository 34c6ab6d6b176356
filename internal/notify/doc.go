// Package notify sends account e-mails for the storefront server.
//
// Templates are Markdown with a YAML front matter holding the subject. They
// are rendered to HTML with goldmark and wrapped in a shared layout. A
// Dispatcher either sends immediately (Mailer) or enqueues the message on a
// River queue backed by PostgreSQL (Queue), whose worker sends it later with
// retries.
package notify
