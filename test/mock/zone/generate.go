package mock_zone

//go:generate -command mockgen go run go.uber.org/mock/mockgen -package=$GOPACKAGE -destination=./mocks.go github.com/quay/upgradeplan/zone
//go:generate mockgen Source
