/*
Package session orchestrates edits of stored card documents.

A Manager serializes every load, mutate, validate and save cycle per card ID. Local
callers are serialized with reference-counted mutexes; replicas can additionally be
coordinated through a ports.DistributedLocker.
*/
package session
