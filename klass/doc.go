// Package klass implements a small class system on top of plain member tables.
// It provides:
//   - Classes derived from a root class with Extend, inheriting instance
//     members through a prototype chain and copying static members down.
//   - Overrides that reach the member they replace through Call.Base, to any
//     depth, for instance and static members alike.
//   - Cast, which copies a class's members onto an existing object or class,
//     and Implement, which folds mixin classes into a class.
//   - A static init hook fired every time a class is defined.
//
// Overrides are declared, not discovered: NewOverride marks a method as one
// that calls base, NewMethod marks one that does not, and NewSourceMethod
// decides by looking for the word "base" in the method's source text. Only
// methods that call base are wrapped when they replace an existing callable
// member; any other method simply replaces it, and its Call.Base is a no-op.
package klass
