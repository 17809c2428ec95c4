package drivers

import (
	_ "modernc.org/sqlite"
)
