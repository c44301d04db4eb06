package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// AddressBookSpec defines the set of peer addresses a fleet node should
// know about.
type AddressBookSpec struct {
	// Addresses lists the peer addresses ("host:port" or a resolvable
	// node name) that belong to this fleet.
	// +kubebuilder:validation:MinItems=1
	Addresses []string `json:"addresses" yaml:"addresses"`
}

// AddressBookStatus reports the book's last reconciliation outcome.
type AddressBookStatus struct {
	// ObservedAddresses is the address list as last applied by a
	// consuming node.
	ObservedAddresses []string `json:"observedAddresses,omitempty" yaml:"observedAddresses,omitempty"`

	// Conditions represent the latest available observations of the
	// AddressBook's current state.
	Conditions []metav1.Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=abook
// +kubebuilder:printcolumn:name="Addresses",type="integer",JSONPath=".spec.addresses",priority=1
// +kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// AddressBook is the Schema for the addressbooks API.
type AddressBook struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   AddressBookSpec   `json:"spec,omitempty"`
	Status AddressBookStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// AddressBookList contains a list of AddressBook.
type AddressBookList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []AddressBook `json:"items"`
}

func init() {
	SchemeBuilder.Register(&AddressBook{}, &AddressBookList{})
}
