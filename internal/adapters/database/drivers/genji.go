package drivers

import (
	_ "github.com/genjidb/genji/driver"
)
