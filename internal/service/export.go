package service

import (
	"context"
	"io"
	"time"

	"github.com/gocarina/gocsv"
)

type saleCSVRow struct {
	ID            string `csv:"id"`
	SaleDate      string `csv:"saleDate"`
	ProductID     string `csv:"productId"`
	ProductName   string `csv:"productName"`
	QuantitySold  int    `csv:"quantitySold"`
	CustomerName  string `csv:"customerName"`
	CustomerPhone string `csv:"customerPhone"`
	PaymentMethod string `csv:"paymentMethod"`
	TotalProfit   string `csv:"totalProfit"`
}

// ExportSalesCSV writes the joined sales list, newest first, with a header row.
func (s *Service) ExportSalesCSV(ctx context.Context, w io.Writer) error {
	views, err := s.ListSales(ctx)
	if err != nil {
		return err
	}

	rows := make([]saleCSVRow, 0, len(views))
	for _, v := range views {
		rows = append(rows, saleCSVRow{
			ID:            v.ID,
			SaleDate:      v.SaleDate.UTC().Format(time.RFC3339),
			ProductID:     v.ProductID,
			ProductName:   v.ProductName,
			QuantitySold:  v.QuantitySold,
			CustomerName:  v.CustomerName,
			CustomerPhone: v.CustomerPhone,
			PaymentMethod: v.PaymentMethod,
			TotalProfit:   v.TotalProfit.String(),
		})
	}
	return gocsv.Marshal(rows, w)
}
