package mysqlsrc

import "github.com/tgberrios/datasync/internal/source"

var _ source.Engine = (*Engine)(nil)
