// Package conversation keeps the bounded prompt history of one dialogue and
// the context vector derived from it.
//
// A Conversation does not own the generator it talks to. It holds a handle
// that is resolved on every update, so a conversation outliving its
// instance fails cleanly with domain.ErrNotInitialized instead of reading
// released memory.
package conversation
