package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/ledger --output domain/ledger --outpkg ledgermock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Source --dir ../domain/startlist --output domain/startlist --outpkg startlistmock --filename source_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name PriceFeed --dir ../domain/fantasy --output domain/fantasy --outpkg fantasymock --filename price_feed_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/prediction --output domain/prediction --outpkg predictionmock --filename repository_mock.go
