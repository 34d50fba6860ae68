// Package redis stores card documents in Redis and coordinates edits across replicas.
//
// Keys, with the default prefix:
//
//	ultracard:card:<id>   card document (JSON)
//	ultracard:index       sorted set of card IDs scored by expiry (+inf without TTL)
//	ultracard:lock:<id>   edit lock
package redis
