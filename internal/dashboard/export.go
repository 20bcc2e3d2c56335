package dashboard

import (
	"bytes"

	"foodcourt-dashboard/internal/aggregate"
	"foodcourt-dashboard/internal/models"
	"foodcourt-dashboard/internal/report"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// allOrders runs the cross-kios aggregation for a request, narrowed with
// ?date= and ?kios_id=.
func (d *Dashboard) allOrders(c *fiber.Ctx, f models.OrderFilter) (aggregate.Result, error) {
	client, ctx := d.callContext(c)
	return d.aggregator(client).AllOrders(ctx, f)
}

// GET /dashboard/cashier/export.xlsx?status=&date=&kios_id=
func (d *Dashboard) ExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, f, err := cashierFilter(c)
		if err != nil {
			return err
		}
		res, err := d.allOrders(c, f)
		if err != nil {
			return err
		}

		now := d.now()
		var buf bytes.Buffer
		if err := report.WriteXLSX(&buf, report.FilterStatus(res.Orders, status), report.Summarize(res.Orders, now), now); err != nil {
			return err
		}
		d.entry("export").WithFields(logrus.Fields{
			"orders":  len(res.Orders),
			"skipped": len(res.Skipped),
			"bytes":   buf.Len(),
		}).Info("orders exported")

		c.Set(fiber.HeaderContentType, report.ContentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+report.FileName(now)+`"`)
		return c.Send(buf.Bytes())
	}
}

// GET /dashboard/cashier/revenue-chart?period=daily|weekly|monthly&count=&kios_id=
//
// The chart spans many days, so ?date= does not apply.
func (d *Dashboard) RevenueChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		count := c.QueryInt("count", 0)
		if count < 0 || count > 366 {
			return fiber.NewError(fiber.StatusBadRequest, "count must be between 1 and 366")
		}
		period := c.Query("period", "daily")
		if !report.ValidPeriod(period) {
			return fiber.NewError(fiber.StatusBadRequest, report.ErrBadPeriod.Error())
		}
		_, f, err := cashierFilter(c)
		if err != nil {
			return err
		}
		f.Date = ""
		res, err := d.allOrders(c, f)
		if err != nil {
			return err
		}
		chart, err := report.RevenueChart(res.Orders, period, count, d.now())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"chart": chart, "skipped": res.Skipped})
	}
}
