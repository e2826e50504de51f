package orderbook

import "sort"

// fillFIFO consumes queue items sorted by timestamp ascending until
// the level or the requested quantity is exhausted. A level carrying
// only an L2 aggregate (no queue items) is consumed as anonymous
// liquidity under order id 0.
func fillFIFO(level *Level, maxQuantity, executionPrice float64) ([]FilledOrder, float64) {
	if len(level.Orders) == 0 {
		return fillAggregate(level, maxQuantity, executionPrice)
	}

	sort.SliceStable(level.Orders, func(i, j int) bool {
		return level.Orders[i].Timestamp < level.Orders[j].Timestamp
	})

	return consumeInOrder(level, maxQuantity, executionPrice)
}

// fillTimePriority sorts by time first and size descending as the
// tie-break, then consumes FIFO-style.
func fillTimePriority(level *Level, maxQuantity, executionPrice float64) ([]FilledOrder, float64) {
	if len(level.Orders) == 0 {
		return fillAggregate(level, maxQuantity, executionPrice)
	}

	sort.SliceStable(level.Orders, func(i, j int) bool {
		if level.Orders[i].Timestamp != level.Orders[j].Timestamp {
			return level.Orders[i].Timestamp < level.Orders[j].Timestamp
		}
		return level.Orders[i].Quantity > level.Orders[j].Quantity
	})

	return consumeInOrder(level, maxQuantity, executionPrice)
}

// fillProRata distributes the fill across all resting orders
// proportionally to their remaining size, pruning consumed orders.
func fillProRata(level *Level, maxQuantity, executionPrice float64) ([]FilledOrder, float64) {
	if len(level.Orders) == 0 {
		return fillAggregate(level, maxQuantity, executionPrice)
	}

	var totalQty float64
	for _, o := range level.Orders {
		totalQty += o.Quantity
	}
	if totalQty <= 0 {
		return nil, 0
	}

	var filled []FilledOrder
	remaining := maxQuantity
	if totalQty < remaining {
		remaining = totalQty
	}
	consumed := 0.0

	for i := range level.Orders {
		if remaining <= qtyEps {
			break
		}
		order := &level.Orders[i]

		fillQty := maxQuantity * (order.Quantity / totalQty)
		if fillQty > order.Quantity {
			fillQty = order.Quantity
		}
		if fillQty > remaining {
			fillQty = remaining
		}
		if fillQty <= 0 {
			continue
		}

		order.Quantity -= fillQty
		remaining -= fillQty
		consumed += fillQty
		debitAggregates(level, order, fillQty)

		filled = append(filled, FilledOrder{
			OrderID:        order.OrderID,
			Price:          level.Price,
			ExecutionPrice: executionPrice,
			Quantity:       fillQty,
		})
	}

	pruned := level.Orders[:0]
	for _, o := range level.Orders {
		if o.Quantity > qtyEps {
			pruned = append(pruned, o)
		}
	}
	level.Orders = pruned

	return filled, consumed
}

// consumeInOrder drains pre-sorted queue items front to back.
func consumeInOrder(level *Level, maxQuantity, executionPrice float64) ([]FilledOrder, float64) {
	var filled []FilledOrder
	remaining := maxQuantity

	for i := range level.Orders {
		if remaining <= qtyEps {
			break
		}
		order := &level.Orders[i]

		fillQty := order.Quantity
		if fillQty > remaining {
			fillQty = remaining
		}

		order.Quantity -= fillQty
		remaining -= fillQty
		debitAggregates(level, order, fillQty)

		filled = append(filled, FilledOrder{
			OrderID:        order.OrderID,
			Price:          level.Price,
			ExecutionPrice: executionPrice,
			Quantity:       fillQty,
		})
	}

	pruned := level.Orders[:0]
	for _, o := range level.Orders {
		if o.Quantity > qtyEps {
			pruned = append(pruned, o)
		}
	}
	level.Orders = pruned

	return filled, maxQuantity - remaining
}

// fillAggregate consumes a pure-L2 level: visible first, then hidden.
func fillAggregate(level *Level, maxQuantity, executionPrice float64) ([]FilledOrder, float64) {
	available := level.VisibleQty + level.HiddenQty
	if available <= 0 {
		return nil, 0
	}

	fillQty := maxQuantity
	if fillQty > available {
		fillQty = available
	}

	fromVisible := fillQty
	if fromVisible > level.VisibleQty {
		fromVisible = level.VisibleQty
	}
	level.VisibleQty -= fromVisible
	level.HiddenQty -= fillQty - fromVisible

	return []FilledOrder{{
		OrderID:        0,
		Price:          level.Price,
		ExecutionPrice: executionPrice,
		Quantity:       fillQty,
	}}, fillQty
}

func debitAggregates(level *Level, order *QueueItem, fillQty float64) {
	if order.IsHidden {
		level.HiddenQty -= fillQty
	} else {
		level.VisibleQty -= fillQty
	}
	if order.IsIceberg {
		level.IcebergQty -= fillQty
	}
}
