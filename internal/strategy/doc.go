// Package strategy implements placement (address chooser) and conciliation
// (conflict resolution) policies as small pure functions over typed inputs:
// no hidden state, no side effects, easy to table-test.
package strategy
