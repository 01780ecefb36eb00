// Package link merges the override layers contributed to a member into one
// final member.
//
// Every overridden member is a Declaration with a layer arena: position 0
// holds the source body, higher positions hold override bodies in the order
// aspects were applied. Each accessor of the declaration forms its own
// Chain. Link markers (syntax.ExprLink) inside a layer body are link sites;
// each one resolves to a lower layer and is then either inlined (the lower
// layer's merged body is spliced in place, with exits rewritten to jumps)
// or forwarded (the lower layer becomes a private generated member and the
// marker becomes a call to it).
//
// Linking runs in three phases. Declarations are analyzed in parallel,
// generated members are named per type in declaration order, and bodies are
// then merged and emitted in parallel. The output only depends on the input.
package link
