/*
Package escrow implements an atomic token swap between two parties that do
not trust each other.

A maker deposits tokens of mint A into a vault and asks for an amount of
mint B in return. The offer is stored in a record whose address is derived
from the maker and a seed. The vault is the canonical holding account of
the record address for mint A, so only this program can move its funds.

Any taker can accept the offer. Both legs of the swap happen in the same
transaction: the taker pays the maker, the vault is drained to the taker
and the vault and the record are closed. Until then the maker can refund,
which drains the vault back to the maker and closes both accounts.

A record exists if and only if its vault holds the deposit. Vault and
record are always created and removed together.
*/
package escrow
