// Package core contains the capability registry domain: addresses, interface
// identifiers, the introspection prober, and the governor-gated registry that
// maps dependents to transformer providers. Storage and transport adapters
// depend on this package; core must not depend on them.
package core
