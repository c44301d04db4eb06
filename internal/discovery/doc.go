// Package discovery watches Kubernetes AddressBook custom resources with a
// controller-runtime cache and informer, feeding dynamic peer address
// lists to a fleet node in place of (or alongside) the static address_list
// configuration option.
package discovery
