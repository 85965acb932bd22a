package service

import (
	"fmt"

	"github.com/okian/battrend/internal/adapters/repository"
)

// ErrNotOpen is returned by service calls made before Open or Start. It
// wraps repository.ErrClosed since no store is open yet.
var ErrNotOpen = fmt.Errorf("service not open: %w", repository.ErrClosed)
