/*
Package session serializes access to persisted conversations.

A Manager pairs a ports.ConversationStore with per-conversation locks so
that a load, a few prompts and a save happen as one unit. With a
ports.DistributedLocker the same guarantee holds across processes.
*/
package session
