package mocks

//go:generate mockery --name SnapshotStore --srcpkg github.com/aevon-lab/aevon-search/internal/aggregation --output ./aggregation --outpkg aggregationmocks --with-expecter
//go:generate mockery --name Executor --srcpkg github.com/aevon-lab/aevon-search/internal/stream --output ./stream --outpkg streammocks --with-expecter
