package cli

import (
	"fmt"
	"time"

	"dcabot/internal/app/runner"
	"dcabot/internal/domain"
	"dcabot/internal/shared/format"
)

// Презентер для ручного запуска из терминала: печатает итог закупки
// в том же духе, что и отчёт в теле HTTP-ответа, но глазочитаемо.

type Presenter struct{}

func NewPresenter() *Presenter { return &Presenter{} }

func (p *Presenter) Show(report *runner.Report, assets []domain.AssetConfig) {
	fmt.Printf("\n=== Закупка %s ===\n", time.Now().Format("15:04 02.01.2006"))
	fmt.Printf("Бюджет: %s GUSD, ставка maker %d bps\n",
		format.Money(report.MaxBuy), report.Rate.MakerBps)
	fmt.Printf("Доступно до закупки: %s GUSD\n", format.Money(report.BalanceBefore))

	if report.Insufficient {
		fmt.Println("Недостаточно средств — ордера не выставлялись.")
		return
	}

	fmt.Println("Цели по активам:")
	for i, a := range assets {
		if i < len(report.Targets) {
			fmt.Printf("  %s: %s GUSD (%s%%)\n", a.Asset, format.Money(report.Targets[i]), a.Percentage)
		}
	}

	for _, o := range report.Outcomes {
		switch o.Status {
		case domain.OutcomePlaced:
			fmt.Printf("\n%s: ордер выставлен\n", o.Asset)
			if o.Plan != nil {
				fmt.Printf("  %s %s по %s, тело %s + комиссия %s = %s GUSD\n",
					format.Qty(o.Plan.Quantity), o.Asset,
					format.Money(o.Plan.Price),
					format.Money(o.Plan.Cost), format.Money(o.Plan.Fee),
					format.Money(o.Plan.TotalCost))
			}
			if o.Result != nil {
				fmt.Printf("  order_id=%s live=%v cancelled=%v\n",
					o.Result.OrderID, o.Result.IsLive, o.Result.IsCancelled)
				if o.Result.CancelReason != "" {
					fmt.Printf("  причина отмены: %s\n", o.Result.CancelReason)
				}
			}
		case domain.OutcomeSkipped:
			fmt.Printf("\n%s: пропущен — %s\n", o.Asset, o.Reason)
		case domain.OutcomeFailed:
			fmt.Printf("\n%s: ошибка — %v\n", o.Asset, o.Err)
		}
	}
	fmt.Printf("\nГотово за %s\n", report.Elapsed.Round(time.Millisecond))
}
