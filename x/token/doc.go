/*
Package token implements fungible token mints and the accounts holding their
balances.

Every (owner, mint) pair has one canonical holding account. Its address is
derived from the owner, the token program and the mint, so anyone can
compute it. An account is controlled by its owner, which can be a program
address. Creating an account reserves a deposit from its payer, returned
when the account is closed.

There is no public message in this package. Balances are created in
genesis and moved by other extensions through the Controller.
*/
package token
