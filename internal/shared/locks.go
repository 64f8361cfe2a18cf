package shared

import "fmt"

// BatchLockKey builds redis keys serialising a batch pass across workers.
func BatchLockKey(name string) string {
	return fmt.Sprintf("invoices:batch:%s:lock", name)
}
