/*
Package cash keeps the native reserve balance of every address.

Creating an account on the ledger reserves a deposit from its payer. The
deposit is held by the created account and returned to a recipient when
the account is closed. Balances are only changed by other extensions
through the Controller.
*/
package cash
