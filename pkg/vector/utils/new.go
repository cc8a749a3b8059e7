// Package vectorutils is the vector driver factory package
package vectorutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector/chromem"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector/memory"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string
	Target       string
	Dimensions   uint
	Logger       *zap.Logger
}

func NewVectorDriver(o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "memory":
		return memory.NewDriver(memory.Config{
			Dimensions: o.Dimensions,
		}, o.Logger), nil
	case "sqlite":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "chromem":
		return chromem.NewDriver(chromem.Config{
			Path:       o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
