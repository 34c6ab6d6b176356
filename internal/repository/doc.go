// Package repository defines the persistence contract of the storefront
// server and an in-memory implementation of it. The PostgreSQL
// implementation lives in the postgres subpackage.
package repository
