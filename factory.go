package tupleproc

import (
	"os"

	"github.com/columnfold/tupleproc/config"
	"github.com/columnfold/tupleproc/logger"
	"github.com/columnfold/tupleproc/schema"
	"github.com/columnfold/tupleproc/stats"
	"github.com/prometheus/client_golang/prometheus"
)

// FactoryOptions carries the ambient collaborators threaded through every
// Create* entry point. Config, when set, is read once here to seed Logger,
// Stats, and Join.IndexOptions for whichever of those the caller left at
// its zero value — an explicit Logger/Stats/IndexOptions always wins over
// Config.
type FactoryOptions struct {
	Logger logger.Logger
	Stats  stats.StatsClient
	Config *config.Config
	Single SingleOptions
	Chain  ChainOptions
	Join   JoinOptions
}

// resolve seeds any zero-valued Logger, Stats, and Join.IndexOptions field
// from Config, the way a processor-factory construction is expected to
// read its configuration once, up front.
func (o FactoryOptions) resolve() FactoryOptions {
	if o.Config == nil {
		return o
	}
	if o.Logger == nil {
		if o.Config.LogLevel == "debug" {
			o.Logger = logger.NewVerboseLogger(os.Stderr)
		} else {
			o.Logger = logger.StderrLogger
		}
	}
	if o.Stats == nil {
		switch o.Config.Stats.Backend {
		case "prometheus":
			o.Stats = stats.NewPrometheusStatsClient(prometheus.DefaultRegisterer)
		default:
			o.Stats = stats.NopStatsClient
		}
	}
	if o.Join.IndexOptions.HashAlgorithm == "" {
		o.Join.IndexOptions.HashAlgorithm = o.Config.HashAlgorithm
	}
	if o.Join.IndexOptions.MaxEntries == 0 {
		o.Join.IndexOptions.MaxEntries = o.Config.IndexMaxEntries
	}
	return o
}

// Create builds a SingleProcessor from an OpenSpec. When spec.Name is
// empty, a unique name is generated so two anonymous processors never
// collide in logs.
func Create(spec OpenSpec, model *schema.Model, opts FactoryOptions) (*SingleProcessor, error) {
	opts = opts.resolve()
	src, err := spec.open()
	if err != nil {
		return nil, err
	}
	single := opts.Single
	if single.Logger == nil {
		single.Logger = opts.Logger
	}
	if single.Stats == nil {
		single.Stats = opts.Stats
	}
	return NewSingleProcessor(spec.resolvedName(), src, model, single)
}

// CreateChain builds a SingleProcessor per OpenSpec and composes them into
// a ChainProcessor, in order.
func CreateChain(specs []OpenSpec, models []*schema.Model, name string, opts FactoryOptions) (*ChainProcessor, error) {
	inners := make([]Processor, len(specs))
	for i, spec := range specs {
		var model *schema.Model
		if models != nil {
			model = models[i]
		}
		single, err := Create(spec, model, opts)
		if err != nil {
			return nil, err
		}
		inners[i] = single
	}
	return CreateChainFromProcessors(inners, name, opts)
}

// CreateChainFromProcessors composes already-constructed processors into a
// ChainProcessor, in order. Any Processor may be an inner, including
// another ChainProcessor or JoinProcessor.
func CreateChainFromProcessors(inners []Processor, name string, opts FactoryOptions) (*ChainProcessor, error) {
	opts = opts.resolve()
	if name == "" {
		name = OpenSpec{}.resolvedName()
	}
	chain := opts.Chain
	if chain.Logger == nil {
		chain.Logger = opts.Logger
	}
	if chain.Stats == nil {
		chain.Stats = opts.Stats
	}
	return NewChainProcessor(name, inners, chain)
}

// CreateJoin builds a primary SingleProcessor and one SingleProcessor per
// auxiliary OpenSpec, then composes them into a JoinProcessor matched on
// joinKeys.
func CreateJoin(primarySpec OpenSpec, primaryModel *schema.Model, auxSpecs []OpenSpec, auxModels []*schema.Model, joinKeys []string, name string, opts FactoryOptions) (*JoinProcessor, error) {
	primary, err := Create(primarySpec, primaryModel, opts)
	if err != nil {
		return nil, err
	}

	auxs := make([]Processor, len(auxSpecs))
	auxNames := make([]string, len(auxSpecs))
	for i, spec := range auxSpecs {
		var model *schema.Model
		if auxModels != nil {
			model = auxModels[i]
		}
		aux, err := Create(spec, model, opts)
		if err != nil {
			return nil, err
		}
		auxs[i] = aux
		auxNames[i] = aux.Name()
	}
	return CreateJoinFromProcessors(primary, auxNames, auxs, joinKeys, name, opts)
}

// CreateJoinFromProcessors composes an already-constructed primary and
// auxiliary processors into a JoinProcessor matched on joinKeys. Any
// Processor may serve as the primary or an auxiliary, including a
// ChainProcessor (a chain auxiliary contributes all of its inners' rows
// sequentially, per JoinProcessor.buildAuxIndices).
func CreateJoinFromProcessors(primary Processor, auxNames []string, auxs []Processor, joinKeys []string, name string, opts FactoryOptions) (*JoinProcessor, error) {
	opts = opts.resolve()
	if name == "" {
		name = OpenSpec{}.resolvedName()
	}
	join := opts.Join
	if join.Logger == nil {
		join.Logger = opts.Logger
	}
	if join.Stats == nil {
		join.Stats = opts.Stats
	}
	return NewJoinProcessor(name, primary, auxNames, auxs, joinKeys, join)
}
