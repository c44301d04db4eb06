package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

// DeepCopyInto copies every field of in into out.
func (in *AddressBookSpec) DeepCopyInto(out *AddressBookSpec) {
	*out = *in
	if in.Addresses != nil {
		out.Addresses = make([]string, len(in.Addresses))
		copy(out.Addresses, in.Addresses)
	}
}

// DeepCopy returns a deep copy of AddressBookSpec.
func (in *AddressBookSpec) DeepCopy() *AddressBookSpec {
	if in == nil {
		return nil
	}
	out := new(AddressBookSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies every field of in into out.
func (in *AddressBookStatus) DeepCopyInto(out *AddressBookStatus) {
	*out = *in
	if in.ObservedAddresses != nil {
		out.ObservedAddresses = make([]string, len(in.ObservedAddresses))
		copy(out.ObservedAddresses, in.ObservedAddresses)
	}
	if in.Conditions != nil {
		out.Conditions = make([]metav1.Condition, len(in.Conditions))
		for i := range in.Conditions {
			in.Conditions[i].DeepCopyInto(&out.Conditions[i])
		}
	}
}

// DeepCopy returns a deep copy of AddressBookStatus.
func (in *AddressBookStatus) DeepCopy() *AddressBookStatus {
	if in == nil {
		return nil
	}
	out := new(AddressBookStatus)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies every field of in into out.
func (in *AddressBook) DeepCopyInto(out *AddressBook) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy returns a deep copy of AddressBook.
func (in *AddressBook) DeepCopy() *AddressBook {
	if in == nil {
		return nil
	}
	out := new(AddressBook)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *AddressBook) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies every field of in into out.
func (in *AddressBookList) DeepCopyInto(out *AddressBookList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]AddressBook, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy returns a deep copy of AddressBookList.
func (in *AddressBookList) DeepCopy() *AddressBookList {
	if in == nil {
		return nil
	}
	out := new(AddressBookList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *AddressBookList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}
