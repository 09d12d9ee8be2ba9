/*
Package session orchestrates concurrent access to conversation state.

It pairs a state store with a distributed lock so that one session receives at
most one turn at a time, across replicas. The engine funnels every mutation
through Manager.WithLock; adapters provide the store and locker.
*/
package session
