// Package mocks provides gomock mocks for the ports in internal/core.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	ledger := mocks.NewMockLedgerWriter(ctrl)
//	ledger.EXPECT().ApplyBalance(gomock.Any(), gomock.Any()).Return(nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/target/balancedesk/internal/core CacheRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ledger_reader_mock.go github.com/target/balancedesk/internal/core LedgerReader
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ledger_writer_mock.go github.com/target/balancedesk/internal/core LedgerWriter
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=subject_directory_mock.go github.com/target/balancedesk/internal/core SubjectDirectory
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=artifact_store_mock.go github.com/target/balancedesk/internal/core ArtifactStore
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=report_renderer_mock.go github.com/target/balancedesk/internal/core ReportRenderer
