// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sequencer

import (
	"context"
	"errors"
)

// Handler drives one item. When respond is true, rsp is posted for the
// item's sequence as the item is completed.
type Handler[Req, Rsp any] func(ctx context.Context, item *Item[Req]) (rsp Rsp, respond bool, err error)

// Serve is the consumer loop: it pulls items from puller, hands them to handle
// and completes them, until ctx is done. Errors seen once ctx is done end the
// loop with a nil error. Dropped responses are tolerated; any other error ends
// the loop with the checked-out item left in place.
func Serve[Req, Rsp any](ctx context.Context, puller ItemPuller[Req, Rsp], handle Handler[Req, Rsp]) error {
	for {
		item, err := puller.NextRequest(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		rsp, respond, err := handle(ctx, item)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if respond {
			err = puller.CompleteWithResponse(item, rsp)
		} else {
			err = puller.Complete(item)
		}
		if err != nil && !errors.Is(err, ErrResponseQueueOverflow) {
			return err
		}
	}
}
