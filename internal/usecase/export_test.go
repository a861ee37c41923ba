package usecase

// SetTokenSource swaps the candidate generator of a.
func SetTokenSource(a *TokenAllocator, next func() string) {
	a.newToken = next
}
