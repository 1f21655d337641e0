package franchisecommand

import "franchise-service/internal/models"

// Operations accepted in the "operation" variable.
const (
	OpCreateFranchise      = "createFranchise"
	OpGetFranchise         = "getFranchiseById"
	OpGetAllFranchises     = "getAllFranchises"
	OpUpdateFranchiseName  = "updateFranchiseName"
	OpDeleteFranchise      = "deleteFranchise"
	OpFranchiseExists      = "franchiseExists"
	OpAddBranch            = "addBranchToFranchise"
	OpUpdateBranchName     = "updateBranchName"
	OpRemoveBranch         = "removeBranchFromFranchise"
	OpAddProduct           = "addProductToBranch"
	OpRemoveProduct        = "removeProductFromBranch"
	OpUpdateProductStock   = "updateProductStock"
	OpUpdateProductName    = "updateProductName"
	OpProductsWithMaxStock = "getProductsWithMaxStockByFranchise"
)

type Input struct {
	Operation   string `json:"operation"`
	FranchiseID string `json:"franchiseId,omitempty"`
	BranchID    string `json:"branchId,omitempty"`
	ProductID   string `json:"productId,omitempty"`
	Name        string `json:"name,omitempty"`
	Stock       *int   `json:"stock,omitempty"`
}

// Output carries exactly one of its fields, depending on the operation.
type Output struct {
	Franchise  *models.Franchise           `json:"franchise,omitempty"`
	Franchises *[]models.Franchise         `json:"franchises,omitempty"`
	Products   *[]models.ProductWithBranch `json:"products,omitempty"`
	Exists     *bool                       `json:"exists,omitempty"`
	Deleted    bool                        `json:"deleted,omitempty"`
}
