/*
Package pda derives program addresses.

A program address is a 32 byte identity computed from a list of seeds and
the identity of the program that controls it. It is chosen so that it is not
a valid ed25519 public key, which means no private key can ever sign for it.
Only the program can act on behalf of such an address.

Derivation is a pure function. Clients compute the same addresses
without talking to the chain.
*/
package pda
