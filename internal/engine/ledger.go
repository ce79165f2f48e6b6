package engine

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/pendle-vault/pvm/internal/types"
)

// Deposit pulls amount of the market's LP token from the user into the
// vault's custody and credits the user's position. Any rewards pending
// against the old balance are settled and paid out first.
//
// Ordering is fixed: harvest, settle against the old balance, pull the
// deposit, mutate balances, re-baseline debt at the new balance.
func (e *Engine) Deposit(ctx context.Context, id types.MarketID, user string, amount sdkmath.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	ms, err := e.marketFor(id)
	if err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	log := e.opLogger("deposit", id, user)

	// Harvest failure never blocks a deposit.
	_ = e.harvestLocked(ctx, ms, log)

	pos := ms.position(user)
	if err := e.settleLocked(ctx, ms, user, pos, log); err != nil {
		return err
	}

	// Reject oversized balances before moving any tokens.
	newDeposited, err := safeAdd(pos.DepositedAmount, amount)
	if err != nil {
		return err
	}
	newTotal, err := safeAdd(ms.market.TotalDeposited, amount)
	if err != nil {
		return err
	}

	lpToken := types.TokenID(id)
	if err := e.gateway.TransferFrom(ctx, lpToken, user, e.vaultAddress, amount); err != nil {
		log.Error().Err(err).Msg("Deposit transfer failed")
		return fmt.Errorf("%w: pulling deposit: %v", ErrTransferFailed, err)
	}

	pos.DepositedAmount = newDeposited
	ms.market.TotalDeposited = newTotal
	e.updateDebtLocked(ms, pos)

	e.record(types.Event{
		Kind:   types.EventDeposit,
		Market: id,
		User:   user,
		Token:  lpToken,
		Amount: amount,
	})
	log.Info().
		Str("amount", amount.String()).
		Str("deposited", pos.DepositedAmount.String()).
		Str("totalDeposited", ms.market.TotalDeposited.String()).
		Msg("Deposit credited")
	return nil
}

// Withdraw settles pending rewards against the current balance, then returns
// amount of the market's LP token to the user. A full withdrawal keeps the
// position record so a later re-deposit resumes correct accounting.
func (e *Engine) Withdraw(ctx context.Context, id types.MarketID, user string, amount sdkmath.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	ms, err := e.marketFor(id)
	if err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	log := e.opLogger("withdraw", id, user)

	pos, ok := ms.positions[user]
	if !ok || amount.GT(pos.DepositedAmount) {
		return fmt.Errorf("%w: withdraw %s exceeds deposit", ErrInvalidAmount, amount)
	}

	// Harvest failure never traps a withdrawal.
	_ = e.harvestLocked(ctx, ms, log)

	if err := e.settleLocked(ctx, ms, user, pos, log); err != nil {
		return err
	}

	prevDeposited := pos.DepositedAmount
	prevTotal := ms.market.TotalDeposited
	pos.DepositedAmount = pos.DepositedAmount.Sub(amount)
	ms.market.TotalDeposited = ms.market.TotalDeposited.Sub(amount)

	lpToken := types.TokenID(id)
	if err := e.gateway.Transfer(ctx, lpToken, user, amount); err != nil {
		// Ledger and custody must not diverge: restore the decrement.
		pos.DepositedAmount = prevDeposited
		ms.market.TotalDeposited = prevTotal
		log.Error().Err(err).Msg("Withdrawal transfer failed, balances restored")
		return fmt.Errorf("%w: returning withdrawal: %v", ErrTransferFailed, err)
	}

	e.updateDebtLocked(ms, pos)

	e.record(types.Event{
		Kind:   types.EventWithdraw,
		Market: id,
		User:   user,
		Token:  lpToken,
		Amount: amount,
	})
	log.Info().
		Str("amount", amount.String()).
		Str("deposited", pos.DepositedAmount.String()).
		Str("totalDeposited", ms.market.TotalDeposited.String()).
		Msg("Withdrawal paid out")
	return nil
}

// Claim pays out the user's pending rewards with no balance change.
func (e *Engine) Claim(ctx context.Context, id types.MarketID, user string) error {
	ms, err := e.marketFor(id)
	if err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	log := e.opLogger("claim", id, user)

	_ = e.harvestLocked(ctx, ms, log)

	pos := ms.position(user)
	if err := e.settleLocked(ctx, ms, user, pos, log); err != nil {
		return err
	}
	e.updateDebtLocked(ms, pos)
	return nil
}

// settleLocked pays the user every reward pending against the current
// accumulator. Caller must hold ms.mu.
//
// For each token the debt is raised to the new gross before the payout
// transfer, so a reentrant call observes already-settled state and cannot
// double-claim. If a payout transfer fails, the debt and fee for that token
// are restored and the operation aborts; tokens already paid keep their
// raised debt, since those transfers cannot be recalled.
func (e *Engine) settleLocked(ctx context.Context, ms *marketState, user string, pos *types.UserPosition, log zerolog.Logger) error {
	if pos.DepositedAmount.IsZero() {
		// Nothing deposited means nothing pending, by construction.
		return nil
	}

	m := ms.market
	paid := make(map[types.TokenID]sdkmath.Int)
	for _, t := range m.RewardTokens {
		gross, err := mulDiv(pos.DepositedAmount, orZero(m.AccRewardPerShare[t]), precision)
		if err != nil {
			return fmt.Errorf("settling %s: %w", t, err)
		}
		debt := orZero(pos.RewardDebt[t])
		if gross.LTE(debt) {
			// Defensive: never pay a negative or zero pending.
			continue
		}
		pending := gross.Sub(debt)

		// Optimistic debt update, before the external transfer.
		pos.RewardDebt[t] = gross

		net, fee := e.applyFee(t, pending)
		if fee.IsPositive() {
			e.record(types.Event{
				Kind:   types.EventFeeAccrued,
				Market: m.ID,
				User:   user,
				Token:  t,
				Amount: fee,
			})
		}

		if net.IsPositive() {
			if err := e.gateway.Transfer(ctx, t, user, net); err != nil {
				pos.RewardDebt[t] = debt
				e.unapplyFee(fee)
				log.Error().Err(err).Str("token", string(t)).Msg("Reward payout failed, settlement aborted")
				return fmt.Errorf("%w: paying %s: %v", ErrTransferFailed, t, err)
			}
		}
		paid[t] = net
	}

	if len(paid) > 0 {
		e.record(types.Event{
			Kind:    types.EventClaim,
			Market:  m.ID,
			User:    user,
			Amounts: paid,
		})
		log.Info().Int("tokensPaid", len(paid)).Msg("Pending rewards settled")
	}
	return nil
}

// updateDebtLocked re-baselines the user's debt at the current deposited
// amount, called exactly once per mutation after the balance has changed and
// after settlement ran against the old balance. Caller must hold ms.mu.
func (e *Engine) updateDebtLocked(ms *marketState, pos *types.UserPosition) {
	for _, t := range ms.market.RewardTokens {
		gross, err := mulDiv(pos.DepositedAmount, orZero(ms.market.AccRewardPerShare[t]), precision)
		if err != nil {
			// Unreachable: the deposit path already bounds DepositedAmount
			// and the accumulator only grows through checked folds.
			e.logger.Error().Err(err).Str("token", string(t)).Msg("Debt re-baseline overflow")
			continue
		}
		pos.RewardDebt[t] = gross
	}
}

func validAmount(amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
