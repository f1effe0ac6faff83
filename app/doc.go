/*
Package app hosts the transaction processing stack as a tendermint ABCI
application.

StoreApp keeps the committed state and the check and deliver caches, answers
queries and loads the genesis. BaseApp adds transaction decoding and
dispatching. Decorators are chained in front of a Router that sends every
message to the handler registered for its path.
*/
package app
