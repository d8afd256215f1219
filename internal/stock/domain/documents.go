package domain

// Documentos GraphQL consumidos por el transporte. Son constantes: el núcleo
// no construye consultas dinámicamente.

const stockFields = `
      id
      ticker
      companyName
      brokerage
      action
      ratingFrom
      ratingTo
      targetFrom
      targetTo
      createdAt
      updatedAt`

const GetStocksQuery = `
  query GetStocks($filter: StockFilter, $sort: StockSort, $limit: Int, $offset: Int) {
    stocks(filter: $filter, sort: $sort, limit: $limit, offset: $offset) {
      stocks {` + stockFields + `
      }
      totalCount
      pageInfo {
        hasNextPage
        hasPreviousPage
      }
    }
  }
`

const GetStockQuery = `
  query GetStock($ticker: String!) {
    stock(ticker: $ticker) {` + stockFields + `
    }
  }
`

const GetRecommendationsQuery = `
  query GetRecommendations($limit: Int) {
    recommendations(limit: $limit) {
      stock {` + stockFields + `
      }
      score
      priceChange
      ratingScore
      actionScore
    }
  }
`

const SyncStocksMutation = `
  mutation SyncStocks {
    syncStocks {
      success
      message
      stocksSynced
    }
  }
`
