// Package v1alpha1 contains the API Schema definitions for the supvisors
// v1alpha1 API group.
//
// This package defines a single CRD, AddressBook, used for dynamic peer
// discovery: instead of a static address_list in config.Options, a fleet
// node can watch AddressBook resources in its cluster and learn about
// peers as they are added, without a restart. Addresses dropped from an
// AddressBook are not removed from a running node.
//
// # API Group: supvisors.julien6387.io/v1alpha1
//
// Example:
//
//	apiVersion: supvisors.julien6387.io/v1alpha1
//	kind: AddressBook
//	metadata:
//	  name: production
//	spec:
//	  addresses:
//	    - node1.internal:65001
//	    - node2.internal:65001
//	    - node3.internal:65001
//
// +kubebuilder:object:generate=true
// +groupName=supvisors.julien6387.io
package v1alpha1
