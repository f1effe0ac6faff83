/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each extension keeps a single configuration entity under its package name.
The configuration is loaded from the genesis file and can later be changed
by a message signed by the configuration owner.

Not being able to get a configuration value is a critical condition for the
application. Handlers must refuse to process a transaction when their
configuration cannot be loaded.
*/
package gconf
