// Package cart implements the client-side shopping cart.
//
// Store keeps an ordered list of items, at most one per product, and writes
// the whole list to the "cart" key of a kv.Store after every mutation.
// Totals are always recomputed from the items.
//
//	c := cart.NewStore(store)
//	c.Add(ctx, product, 1)
//	c.AdjustQuantity(ctx, 0, -1) // removes the line once quantity reaches 0
//	total, _ := c.Total(ctx)
package cart
