package blocklist

//go:generate mockgen -package mocks -destination mocks/mock_store.go github.com/kasuboski/reelwatch/pkg/blocklist Store
