package heap

import (
	"github.com/agilira/go-errors"
)

// Error codes for heap construction. Only construction is validated this
// way: once a Heap exists, Alloc/Free/Resize/DropFront report outcomes
// through plain zero values, per the allocator's own no-exceptions
// contract — there is no caller left to hand a structured error to on
// the hot path.
const (
	ErrCodeArenaTooSmall   errors.ErrorCode = "HEAP_ARENA_TOO_SMALL"
	ErrCodeInvalidAlign    errors.ErrorCode = "HEAP_INVALID_ALIGNMENT"
	ErrCodeArenaTooLarge   errors.ErrorCode = "HEAP_ARENA_TOO_LARGE"
	ErrCodeArenaMisaligned errors.ErrorCode = "HEAP_ARENA_MISALIGNED"
)

const (
	msgArenaTooSmall   = "arena too small to hold one block and its sentinel"
	msgInvalidAlign    = "alignment must be a power of two no larger than the block header"
	msgArenaTooLarge   = "arena length does not fit in a uint32 offset"
	msgArenaMisaligned = "arena base address is not aligned to the requested boundary"
)

// NewErrArenaTooSmall reports an arena too small to carve even a single
// free block plus the trailing used sentinel out of.
func NewErrArenaTooSmall(have, need int) error {
	return errors.NewWithContext(ErrCodeArenaTooSmall, msgArenaTooSmall, map[string]interface{}{
		"arena_len":    have,
		"minimum_need": need,
	})
}

// NewErrInvalidAlign reports an alignment request the header layout
// cannot support.
func NewErrInvalidAlign(alignBits uint) error {
	return errors.NewWithContext(ErrCodeInvalidAlign, msgInvalidAlign, map[string]interface{}{
		"align_bits": alignBits,
	})
}

// NewErrArenaTooLarge reports an arena whose length would overflow the
// 32 bit offsets block headers use.
func NewErrArenaTooLarge(have int) error {
	return errors.NewWithContext(ErrCodeArenaTooLarge, msgArenaTooLarge, map[string]interface{}{
		"arena_len": have,
	})
}

// NewErrArenaMisaligned reports an arena slice whose backing address does
// not itself satisfy the requested alignment.
func NewErrArenaMisaligned(alignBits uint) error {
	return errors.NewWithContext(ErrCodeArenaMisaligned, msgArenaMisaligned, map[string]interface{}{
		"align_bits": alignBits,
	})
}
